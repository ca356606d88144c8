package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		zipCode   string
		supported bool
		areaCode  string
		city      string
		state     string
	}{
		{name: "midtown atlanta", zipCode: "30309", supported: true, areaCode: "404", city: "Atlanta", state: "GA"},
		{name: "atlanta overlay", zipCode: "30339", supported: true, areaCode: "678", city: "Atlanta", state: "GA"},
		{name: "downtown nashville", zipCode: "37201", supported: true, areaCode: "615", city: "Nashville", state: "TN"},
		{name: "uptown charlotte", zipCode: "28202", supported: true, areaCode: "704", city: "Charlotte", state: "NC"},
		{name: "outside coverage", zipCode: "99999", supported: false},
		{name: "empty zip", zipCode: "", supported: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := Resolve(tt.zipCode)
			assert.Equal(t, tt.supported, ok)
			if !tt.supported {
				assert.Empty(t, loc.AreaCode)
				return
			}
			assert.Equal(t, tt.areaCode, loc.AreaCode)
			assert.Equal(t, tt.city, loc.City)
			assert.Equal(t, tt.state, loc.State)
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("78701"))
	assert.True(t, IsSupported("85018"))
	assert.False(t, IsSupported("10001"))
}

func TestAreaCodesForCity(t *testing.T) {
	assert.Equal(t, []string{"404", "470", "678"}, AreaCodesForCity("Atlanta"))
	assert.Equal(t, []string{"615", "629"}, AreaCodesForCity("Nashville"))
	assert.Empty(t, AreaCodesForCity("Seattle"))
}
