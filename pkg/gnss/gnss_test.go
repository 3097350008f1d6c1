package gnss

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPRN(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    PRN
		wantErr bool
	}{
		{name: "gps", s: "G06", want: PRN{Sys: SysGPS, Num: 6}, wantErr: false},
		{name: "glonass", s: "R24", want: PRN{Sys: SysGLO, Num: 24}, wantErr: false},
		{name: "galileo", s: "E33", want: PRN{Sys: SysGAL, Num: 33}, wantErr: false},
		{name: "unknown system", s: "X06", want: PRN{}, wantErr: true},
		{name: "bad number", s: "Gxx", want: PRN{}, wantErr: true},
		{name: "zero", s: "G00", want: PRN{}, wantErr: true},
		{name: "too short", s: "G", want: PRN{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPRN(tt.s)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPRN() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPRN_String(t *testing.T) {
	prn := PRN{Sys: SysGPS, Num: 6}
	assert.Equal(t, "G06", prn.String())
}

func TestSystemFromName(t *testing.T) {
	sys, err := SystemFromName("GAL")
	assert.NoError(t, err)
	assert.Equal(t, SysGAL, sys)
	assert.Equal(t, "E", sys.Abbr())

	_, err = SystemFromName("LORAN")
	assert.Error(t, err)
}

func TestByPRN(t *testing.T) {
	prns := []PRN{{Sys: SysGLO, Num: 2}, {Sys: SysGPS, Num: 11}, {Sys: SysGPS, Num: 2}}
	sort.Sort(ByPRN(prns))
	assert.Equal(t, []PRN{{Sys: SysGPS, Num: 2}, {Sys: SysGPS, Num: 11}, {Sys: SysGLO, Num: 2}}, prns)
}

func TestCode_IsValid(t *testing.T) {
	assert.True(t, CodeC1.IsValid())
	assert.True(t, Code("E5A").IsValid())
	assert.False(t, Code("c1").IsValid())
	assert.False(t, Code("").IsValid())
	assert.False(t, Code("L1CA").IsValid())
}
