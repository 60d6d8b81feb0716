package models

// LocatedEntity is a named point on the competitor map.
type LocatedEntity struct {
	Name  string  `json:"name" yaml:"name"`
	Lat   float64 `json:"lat" yaml:"lat"`
	Lon   float64 `json:"lon" yaml:"lon"`
	Link  string  `json:"link" yaml:"link"`
	Label string  `json:"label,omitempty" yaml:"-"`
}
