package command

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"h4(60)[10] > p6[10] > pC[10]", "h4[10](60)>p6[10]>pC[10]"},
		{" h 4 ( 60 ) > r 6 > p C6 [ 20] ", "h4(60)>r6>p6C[20]"},
		{"n2>f2A", "n2>f2A"},
		{"p1379", "p9371"},
		{"", ""},
	}

	for _, tt := range tests {
		c, err := Parse(tt.input)
		require.NoError(t, err, "Parse(%q)", tt.input)
		assert.Equal(t, tt.want, c.String())
		assert.Equal(t, tt.want, Serialize(c))
	}
}

func TestCommandRoundTrip(t *testing.T) {
	commands := []*Command{
		New(),
		New(Push(C, Frames{})),
		New(Push(A|B|C|D, FramesOf(0)), Release(Forward|Up, FramesOf(7))),
		New(Hold(Backward, Frames{}, FramesOf(60)), Hold(Down, FramesOf(3), Frames{}), Hold(BackwardDown, FramesOf(1), FramesOf(2))),
		New(On(Backward), Off(ForwardUp|BackwardUp|ForwardDown|BackwardDown)),
		New(Release(A, FramesOf(4294967295))),
	}

	for _, c := range commands {
		text := Serialize(c)
		back, err := Deserialize(text)
		require.NoError(t, err, "Deserialize(%q)", text)
		if diff := cmp.Diff(c.Steps(), back.Steps()); diff != "" {
			t.Errorf("round trip of %q mismatch (-want +got):\n%s", text, diff)
		}
		assert.True(t, c.Equal(back))
		assert.Equal(t, text, back.String())
	}
}

func TestCommandEqual(t *testing.T) {
	assert.True(t, MustParse("p6").Equal(MustParse(" p 6 ")))
	assert.False(t, MustParse("p6").Equal(MustParse("p6[10]")))
	assert.False(t, MustParse("p6[10]").Equal(MustParse("r6[10]")))
	assert.False(t, MustParse("p6").Equal(MustParse("p6>p6")))
	assert.True(t, MustParse("").Equal(nil))
	assert.True(t, (*Command)(nil).Equal(New()))
}

func TestCommandStepsAreCopied(t *testing.T) {
	steps := []Step{Push(C, Frames{})}
	c := New(steps...)
	steps[0] = Push(A, Frames{})

	got := c.Steps()
	got[0] = Off(B)
	assert.Equal(t, "pC", c.String())
}

func TestCommandKeys(t *testing.T) {
	assert.Equal(t, "4>6>C", MustParse(chargeCommand).Keys())
}

func TestCommandSpan(t *testing.T) {
	c := MustParse(chargeCommand)
	assert.Equal(t, 71+11+11, c.Span(10, 10))
	assert.Equal(t, 71+11+11, c.Span(0, 0))

	assert.Equal(t, 1+11+11, MustParse("n6 > r6 > p6").Span(10, 99))
	assert.Equal(t, 0, New().Span(10, 10))
}

func TestCommandTextMarshal(t *testing.T) {
	type entry struct {
		Name    string   `json:"name"`
		Command *Command `json:"command"`
	}

	var e entry
	require.NoError(t, json.Unmarshal([]byte(`{"name":"sonic boom","command":"h4(45) > p6 > pA"}`), &e))
	assert.Equal(t, 3, e.Command.Len())

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"sonic boom","command":"h4(45)>p6>pA"}`, string(out))

	err = json.Unmarshal([]byte(`{"command":"h4 (45) > p6 x"}`), &e)
	assert.ErrorIs(t, err, ErrTrailingInput)
}

func TestCommandValidate(t *testing.T) {
	assert.NoError(t, MustParse(chargeCommand).Validate())
	assert.NoError(t, New().Validate())

	tests := []struct {
		name string
		c    *Command
		text string
	}{
		{"empty push", New(Push(C, Frames{}), Push(Empty(), Frames{})), "pC>p"},
		{"neutral on", New(On(Neutral)), "nN"},
		{"neutral inside cluster", New(Hold(Backward|Neutral, Frames{}, FramesOf(30))), "h4N(30)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.c.Validate(), ErrNoNotation)
			// 仍然可以输出，但不能还原
			assert.Equal(t, tt.text, tt.c.String())
			_, err := Parse(tt.c.String())
			assert.Error(t, err)

			_, err = tt.c.MarshalText()
			assert.ErrorIs(t, err, ErrNoNotation)
		})
	}
}
