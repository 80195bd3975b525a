package osm

import (
	"math"
	"testing"

	"github.com/paulmach/osm"
)

func TestIsCarAccessible(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "motorway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: true,
		},
		{
			name: "footway (not car accessible)",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "cycleway",
			tags: osm.Tags{{Key: "highway", Value: "cycleway"}},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "no access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "no"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "service road",
			tags: osm.Tags{{Key: "highway", Value: "service"}},
			want: true,
		},
		{
			name: "living_street",
			tags: osm.Tags{{Key: "highway", Value: "living_street"}},
			want: true,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Some Street"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isCarAccessible(tt.tags)
			if got != tt.want {
				t.Errorf("isCarAccessible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionFlags(t *testing.T) {
	tests := []struct {
		name         string
		tags         osm.Tags
		wantForward  bool
		wantBackward bool
	}{
		{
			name:         "default bidirectional",
			tags:         osm.Tags{{Key: "highway", Value: "residential"}},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name:         "motorway implied oneway",
			tags:         osm.Tags{{Key: "highway", Value: "motorway"}},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "motorway_link implied oneway",
			tags:         osm.Tags{{Key: "highway", Value: "motorway_link"}},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "roundabout implied oneway",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "junction", Value: "roundabout"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=yes",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "yes"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=true",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "true"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=1",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "1"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name: "explicit oneway=-1 (reverse)",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "-1"},
			},
			wantForward:  false,
			wantBackward: true,
		},
		{
			name: "explicit oneway=reverse",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reverse"},
			},
			wantForward:  false,
			wantBackward: true,
		},
		{
			name: "explicit oneway=no overrides implied",
			tags: osm.Tags{
				{Key: "highway", Value: "motorway"},
				{Key: "oneway", Value: "no"},
			},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name: "oneway=reversible skips entirely",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reversible"},
			},
			wantForward:  false,
			wantBackward: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := directionFlags(tt.tags)
			if fwd != tt.wantForward || bwd != tt.wantBackward {
				t.Errorf("directionFlags() = (%v, %v), want (%v, %v)", fwd, bwd, tt.wantForward, tt.wantBackward)
			}
		})
	}
}

func TestParseMaxSpeed(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"50", 50, true},
		{"50 km/h", 50, true},
		{"30 mph", 30 * 1.609344, true},
		{"none", 0, false},
		{"signals", 0, false},
		{"", 0, false},
		{"-5", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseMaxSpeed(tt.in)
		if ok != tt.wantOK || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseMaxSpeed(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSpeedKmh(t *testing.T) {
	tags := osm.Tags{{Key: "highway", Value: "residential"}}
	if got := speedKmh(tags); got != 30 {
		t.Errorf("speedKmh(residential) = %v, want 30", got)
	}

	tags = osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "maxspeed", Value: "40"},
	}
	if got := speedKmh(tags); got != 40 {
		t.Errorf("speedKmh(residential, maxspeed=40) = %v, want 40", got)
	}

	tags = osm.Tags{
		{Key: "highway", Value: "primary"},
		{Key: "maxspeed", Value: "walk"},
	}
	if got := speedKmh(tags); got != 60 {
		t.Errorf("speedKmh(primary, maxspeed=walk) = %v, want 60", got)
	}
}

func TestTravelSeconds(t *testing.T) {
	tests := []struct {
		meters, kmh float64
		want        uint32
	}{
		{1000, 36, 100}, // 10 m/s
		{1001, 36, 101}, // rounded up
		{1, 90, 1},      // at least one second
		{0, 50, 1},
	}
	for _, tt := range tests {
		if got := travelSeconds(tt.meters, tt.kmh); got != tt.want {
			t.Errorf("travelSeconds(%v, %v) = %d, want %d", tt.meters, tt.kmh, got, tt.want)
		}
	}
}

func TestLengthMillimeters(t *testing.T) {
	tests := []struct {
		meters float64
		want   uint32
	}{
		{1, 1000},
		{12.3456, 12346}, // rounded to the nearest millimeter
		{0.0002, 1},      // at least one
		{0, 1},
	}
	for _, tt := range tests {
		if got := lengthMillimeters(tt.meters); got != tt.want {
			t.Errorf("lengthMillimeters(%v) = %d, want %d", tt.meters, got, tt.want)
		}
	}
}
