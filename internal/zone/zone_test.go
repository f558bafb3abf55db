package zone

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpan_OrderAgnostic(t *testing.T) {
	a := Span(Cell{Row: 1, Section: 2}, Cell{Row: 4, Section: 6})
	b := Span(Cell{Row: 4, Section: 6}, Cell{Row: 1, Section: 2})
	c := Span(Cell{Row: 1, Section: 6}, Cell{Row: 4, Section: 2})

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Equal(t, SoundZone{MinX: 1, MaxX: 4, MinY: 2, MaxY: 6}, a)
}

func TestSoundZone_ContainsUnnormalizedBounds(t *testing.T) {
	z := SoundZone{MinX: 5, MaxX: 2, MinY: 9, MaxY: 3}

	assert.True(t, z.Contains(Cell{Row: 2, Section: 3}))
	assert.True(t, z.Contains(Cell{Row: 5, Section: 9}))
	assert.True(t, z.Contains(Cell{Row: 3, Section: 5}))
	assert.False(t, z.Contains(Cell{Row: 6, Section: 5}))
	assert.False(t, z.Contains(Cell{Row: 3, Section: 2}))
}

func TestSoundZone_Dimensions(t *testing.T) {
	z := SoundZone{MinX: 3, MaxX: 1, MinY: 0, MaxY: 4}
	assert.Equal(t, 3, z.Width())
	assert.Equal(t, 5, z.Height())
}

func TestSoundZone_GrowAndTranslate(t *testing.T) {
	z := SoundZone{MinX: 2, MaxX: 3, MinY: 2, MaxY: 3}

	assert.Equal(t, SoundZone{MinX: 1, MaxX: 4, MinY: 0, MaxY: 5}, z.Grow(1, 2))
	assert.Equal(t, SoundZone{MinX: 3, MaxX: 4, MinY: 1, MaxY: 2}, z.Translate(1, -1))
}

func TestSoundZone_Overlaps(t *testing.T) {
	a := SoundZone{MinX: 0, MaxX: 2, MinY: 0, MaxY: 2}
	assert.True(t, a.Overlaps(SoundZone{MinX: 2, MaxX: 4, MinY: 2, MaxY: 4}))
	assert.False(t, a.Overlaps(SoundZone{MinX: 3, MaxX: 4, MinY: 0, MaxY: 2}))
}

func TestColor_ParseAndHex(t *testing.T) {
	c, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)
	assert.Equal(t, "#ff8000ff", c.Hex())

	c, err = ParseColor("10203040")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	_, err = ParseColor("#abc")
	assert.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)
}

func TestZoneValue_JSON(t *testing.T) {
	v := ZoneValue{SoundName: "kick", Color: Color{R: 1, G: 2, B: 3, A: 4}}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sound_name":"kick","color":"#01020304"}`, string(data))

	var got ZoneValue
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, v, got)
}

func TestMask_SoundForMissAndSilent(t *testing.T) {
	m := NewMask()
	m.Put(SoundZone{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}, ZoneValue{SoundName: "snare"})
	m.Put(SoundZone{MinX: 5, MaxX: 6, MinY: 5, MaxY: 6}, ZoneValue{})

	name, ok := m.SoundFor(Cell{Row: 1, Section: 0})
	assert.True(t, ok)
	assert.Equal(t, "snare", name)

	_, ok = m.SoundFor(Cell{Row: 3, Section: 3})
	assert.False(t, ok, "cell outside every zone")

	_, ok = m.SoundFor(Cell{Row: 5, Section: 5})
	assert.False(t, ok, "silent zone")

	z, _, ok := m.ZoneFor(Cell{Row: 5, Section: 5})
	assert.True(t, ok)
	assert.Equal(t, SoundZone{MinX: 5, MaxX: 6, MinY: 5, MaxY: 6}, z)
}

func TestMask_OverlapNewestWins(t *testing.T) {
	m := NewMask()
	big := SoundZone{MinX: 0, MaxX: 9, MinY: 0, MaxY: 9}
	small := SoundZone{MinX: 2, MaxX: 3, MinY: 2, MaxY: 3}
	m.Put(big, ZoneValue{SoundName: "pad"})
	m.Put(small, ZoneValue{SoundName: "hat"})

	name, _ := m.SoundFor(Cell{Row: 2, Section: 2})
	assert.Equal(t, "hat", name)

	// Re-putting the big zone makes it the newest.
	m.Put(big, ZoneValue{SoundName: "pad2"})
	name, _ = m.SoundFor(Cell{Row: 2, Section: 2})
	assert.Equal(t, "pad2", name)

	// SetValue keeps the lookup position.
	require.True(t, m.SetValue(small, ZoneValue{SoundName: "ride"}))
	name, _ = m.SoundFor(Cell{Row: 2, Section: 2})
	assert.Equal(t, "pad2", name)
}

func TestMask_RemoveAndEntries(t *testing.T) {
	m := NewMask()
	a := SoundZone{MinX: 0, MaxX: 0, MinY: 0, MaxY: 0}
	b := SoundZone{MinX: 1, MaxX: 1, MinY: 1, MaxY: 1}
	m.Put(a, ZoneValue{SoundName: "a"})
	m.Put(b, ZoneValue{SoundName: "b"})

	v, ok := m.Remove(a)
	assert.True(t, ok)
	assert.Equal(t, "a", v.SoundName)

	_, ok = m.Remove(a)
	assert.False(t, ok)
	assert.False(t, m.SetValue(a, ZoneValue{}))

	assert.Equal(t, []Entry{{Zone: b, Value: ZoneValue{SoundName: "b"}}}, m.Entries())
	assert.Equal(t, 1, m.Len())
}

func TestMask_ReplaceAndBackground(t *testing.T) {
	m := NewMask()
	m.Put(SoundZone{MaxX: 3}, ZoneValue{SoundName: "old"})
	m.SetBackground("rain.wav")

	z := SoundZone{MinX: 1, MaxX: 2, MinY: 1, MaxY: 2}
	m.Replace([]Entry{
		{Zone: z, Value: ZoneValue{SoundName: "first"}},
		{Zone: z, Value: ZoneValue{SoundName: "second"}},
	}, "wind.wav")

	assert.Equal(t, 1, m.Len())
	v, _ := m.Get(z)
	assert.Equal(t, "second", v.SoundName)
	assert.Equal(t, "wind.wav", m.Background())

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "wind.wav", m.Background())
}

func TestMask_ConcurrentAccess(t *testing.T) {
	m := NewMask()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				z := SoundZone{MinX: i, MaxX: i, MinY: j, MaxY: j}
				m.Put(z, ZoneValue{SoundName: "s"})
				m.Remove(z)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.SoundFor(Cell{Row: 1, Section: j})
				m.Entries()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Len())
}

func TestGrid_CellAt(t *testing.T) {
	g := Grid{Rows: 4, Sections: 10}

	tests := []struct {
		name string
		x, y float64
		want Cell
		ok   bool
	}{
		{"origin", 0, 0, Cell{0, 0}, true},
		{"middle", 0.5, 0.55, Cell{2, 5}, true},
		{"last cell", 0.999, 0.999, Cell{3, 9}, true},
		{"right edge misses", 1.0, 0.5, Cell{}, false},
		{"negative misses", -0.01, 0.5, Cell{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.CellAt(tt.x, tt.y)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Grid{}.CellAt(0.5, 0.5)
	assert.False(t, ok, "zero grid")
}

func TestGrid_Fits(t *testing.T) {
	g := Grid{Rows: 4, Sections: 4}
	assert.True(t, g.Fits(SoundZone{MinX: 3, MaxX: 0, MinY: 0, MaxY: 3}))
	assert.False(t, g.Fits(SoundZone{MinX: 0, MaxX: 4, MinY: 0, MaxY: 3}))
	assert.False(t, g.Fits(SoundZone{MinX: -1, MaxX: 0, MinY: 0, MaxY: 0}))

	x, y := g.Center(Cell{Row: 1, Section: 2})
	assert.InDelta(t, 0.375, x, 1e-12)
	assert.InDelta(t, 0.625, y, 1e-12)
}
