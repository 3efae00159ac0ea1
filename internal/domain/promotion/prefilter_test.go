package promotion

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCodeSource struct {
	codes []string
	err   error
}

func (s *staticCodeSource) ListCodes(context.Context) ([]string, error) {
	return s.codes, s.err
}

func TestPrefilter(t *testing.T) {
	t.Run("unseeded filter passes everything", func(t *testing.T) {
		p := NewPrefilter(1000, 0.001)
		assert.True(t, p.MayContain("ANYTHING"))
	})

	t.Run("seeded filter screens unknown codes", func(t *testing.T) {
		p := NewPrefilter(1000, 0.001)
		n, err := p.Seed(context.Background(), &staticCodeSource{
			codes: []string{"LEAF5", "HAPPYHRS", "FIFTYOFF"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		assert.True(t, p.MayContain("LEAF5"))
		assert.True(t, p.MayContain("HAPPYHRS"))
		assert.False(t, p.MayContain("definitely-not-a-code-9321"))
	})

	t.Run("reseed replaces previous contents", func(t *testing.T) {
		p := NewPrefilter(1000, 0.001)
		_, err := p.Seed(context.Background(), &staticCodeSource{codes: []string{"OLDCODE"}})
		require.NoError(t, err)

		_, err = p.Seed(context.Background(), &staticCodeSource{codes: []string{"NEWCODE"}})
		require.NoError(t, err)

		assert.True(t, p.MayContain("NEWCODE"))
		assert.False(t, p.MayContain("OLDCODE"))
	})

	t.Run("source failure is wrapped", func(t *testing.T) {
		p := NewPrefilter(1000, 0.001)
		boom := errors.New("boom")
		_, err := p.Seed(context.Background(), &staticCodeSource{err: boom})
		require.ErrorIs(t, err, boom)
	})
}
