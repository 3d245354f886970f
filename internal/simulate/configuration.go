// Package simulate builds synthetic observations: named antenna
// configurations, the visibility sets they sample and image templates that
// match them.
package simulate

import (
	"fmt"
	"math"
	"sort"
)

// goldenAngle spreads spiral antennas without radial alignment.
const goldenAngle = 2.399963229728653

// Configuration is an antenna layout at a site. Antennas holds local
// (X, Y, Z) coordinates in metres, with Z towards the celestial pole.
type Configuration struct {
	Name     string
	Latitude float64 // radians
	Diameter float64 // metres
	Antennas [][3]float64
}

type namedConfig struct {
	antennas int
	radius   float64
	latitude float64
	diameter float64
}

var named = map[string]namedConfig{
	"SPIRAL8":  {antennas: 8, radius: 400, latitude: -26.7, diameter: 35},
	"SPIRAL16": {antennas: 16, radius: 1000, latitude: -26.7, diameter: 35},
}

// Names lists the named configurations.
func Names() []string {
	out := make([]string, 0, len(named))
	for k := range named {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NamedConfiguration returns one of the built-in layouts.
func NamedConfiguration(name string) (*Configuration, error) {
	nc, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("unknown configuration %q (have %v)", name, Names())
	}
	return Spiral(name, nc.antennas, nc.radius, nc.latitude*math.Pi/180, nc.diameter), nil
}

// Spiral lays n antennas on a flat spiral of the given outer radius at
// latitude lat.
func Spiral(name string, n int, radius, lat, diameter float64) *Configuration {
	cfg := &Configuration{Name: name, Latitude: lat, Diameter: diameter, Antennas: make([][3]float64, n)}
	for k := 0; k < n; k++ {
		r := radius * float64(k+1) / float64(n)
		east, north := r*math.Cos(float64(k)*goldenAngle), r*math.Sin(float64(k)*goldenAngle)
		cfg.Antennas[k] = ENUToXYZ(east, north, 0, lat)
	}
	return cfg
}

// ENUToXYZ rotates local east, north, up offsets into the equatorial frame
// used for baseline coordinates.
func ENUToXYZ(east, north, up, lat float64) [3]float64 {
	sinLat, cosLat := math.Sincos(lat)
	return [3]float64{
		-sinLat*north + cosLat*up,
		east,
		cosLat*north + sinLat*up,
	}
}

// Baselines returns the antenna pairs (a1 < a2).
func (c *Configuration) Baselines() [][2]int {
	n := len(c.Antennas)
	out := make([][2]int, 0, n*(n-1)/2)
	for a1 := 0; a1 < n; a1++ {
		for a2 := a1 + 1; a2 < n; a2++ {
			out = append(out, [2]int{a1, a2})
		}
	}
	return out
}
