package hcl

import "github.com/hashicorp/hcl/v2"

// blockBody captures the attributes of an unlabelled block.
type blockBody struct {
	Body hcl.Body `hcl:",remain"`
}

// labelledBody captures the attributes of a block with a single label.
type labelledBody struct {
	Label string   `hcl:"label,label"`
	Body  hcl.Body `hcl:",remain"`
}

// runFile is the top-level structure of a run file.
type runFile struct {
	Observation *blockBody      `hcl:"observation,block"`
	Image       *blockBody      `hcl:"image,block"`
	Components  []*labelledBody `hcl:"component,block"`
	Imaging     *blockBody      `hcl:"imaging,block"`
	Reports     []*labelledBody `hcl:"report,block"`
}
