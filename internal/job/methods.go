package job

import "strings"

// Method is a manufacturing method a design can be generated for.
type Method struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Methods is the catalog accepted by design generation.
var Methods = []Method{
	{ID: "printing", Name: "Impresión 3D por Resina"},
	{ID: "laser", Name: "Ablación Láser"},
	{ID: "cnc", Name: "Mecanizado CNC"},
}

// ResolveMethod looks a method up by ID or full name, ignoring case and
// surrounding whitespace.
func ResolveMethod(s string) (Method, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Method{}, false
	}
	for _, m := range Methods {
		if strings.EqualFold(m.ID, s) || strings.EqualFold(m.Name, s) {
			return m, true
		}
	}
	return Method{}, false
}
