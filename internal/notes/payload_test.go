package notes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
)

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	local := time.FixedZone("CST", 8*3600)
	rec := clip.NewClipRecord("T", "https://o", "https://s",
		clip.SummaryResult{Summary: "s", Tags: []string{"  a ", "", "b"}},
		time.Date(2024, 7, 1, 8, 0, 0, 0, local))

	p := BuildPayload(rec, "未分类")
	require.Equal(t, []string{"a", "b"}, p.Tags)
	require.Equal(t, "2024-07-01T00:00:00.000Z", p.Created)
	require.NotNil(t, p.OriginalURL)
	require.Equal(t, "https://o", *p.OriginalURL)

	created, err := p.CreatedTime()
	require.NoError(t, err)
	require.True(t, created.Equal(rec.CreatedAt))
}

func TestBuildPayloadDefaultsTags(t *testing.T) {
	t.Parallel()

	rec := clip.NewClipRecord("T", "", "https://s", clip.SummaryResult{Tags: []string{" "}}, time.Unix(0, 0))
	p := BuildPayload(rec, "未分类")
	require.Equal(t, []string{"未分类"}, p.Tags)
	require.Nil(t, p.OriginalURL)
}
