package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoinNormalizesWhitespaceAndSentenceCase(t *testing.T) {
	t.Parallel()

	got := Join([]string{" the patient", "is stable.", "\nno distress"}, Options{CapitalizeSentences: true})
	require.Equal(t, "The patient is stable. No distress", got)
}

func TestJoinWithoutCapitalization(t *testing.T) {
	t.Parallel()

	require.Equal(t, "set indication to rest pain", Join([]string{"set indication", "to rest pain"}, Options{}))
}

func TestAssembleEmptyInput(t *testing.T) {
	t.Parallel()

	require.Empty(t, Assemble(nil, Options{CapitalizeSentences: true}))
	require.Empty(t, Join([]string{"  ", "\n\t"}, Options{CapitalizeSentences: true}))
}

func TestAssembleDropsRepeatedOverlappingSegment(t *testing.T) {
	t.Parallel()

	got := Assemble([]Segment{
		{Start: 0, End: 2 * time.Second, Text: "insert demo"},
		{Start: 1500 * time.Millisecond, End: 2 * time.Second, Text: "insert demo"},
		{Start: 3 * time.Second, End: 4 * time.Second, Text: "insert demo"},
	}, Options{})
	require.Equal(t, "insert demo insert demo", got)
}

func TestCapitalizePronounAndDecimals(t *testing.T) {
	t.Parallel()

	got := Join([]string{"when i speak i'm clearer. temperature is 38.5 degrees! i think so"}, Options{CapitalizeSentences: true})
	require.Equal(t, "When I speak I'm clearer. Temperature is 38.5 degrees! I think so", got)
}

func TestCapitalizeIdempotent(t *testing.T) {
	t.Parallel()

	opts := Options{CapitalizeSentences: true}
	first := Join([]string{"hello world. this is dictum"}, opts)
	require.Equal(t, first, Join([]string{first}, opts))
}
