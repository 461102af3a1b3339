package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"memo.mp3":               "memo.mp3",
		"my memo (final)!.mp3":   "my_memo__final__.mp3",
		"weird\x00control*?.ogg": "weird_control__.ogg",
		// Directory components and parent references never survive.
		"user-1/voice note.wav":         "voice_note.wav",
		"evil/../../../../pwned.txt":    "pwned.txt",
		`c:\windows\system32\notes.mp3`: "notes.mp3",
		"..":                            "audio",
		"":                              "audio",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeFilename(in), "input %q", in)
	}
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "meeting", Slugify("Meeting"))
	require.Equal(t, "my-category", Slugify("My Category"))
	require.Equal(t, "my-category", Slugify("  My   Category!  "))
}

func paramsFor(t *testing.T, query string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParams(t *testing.T) {
	p := paramsFor(t, "")
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.Limit)
	require.Equal(t, 0, p.Offset)

	p = paramsFor(t, "page=3&limit=10")
	require.Equal(t, 3, p.Page)
	require.Equal(t, 10, p.Limit)
	require.Equal(t, 20, p.Offset)

	// Out-of-range values fall back to defaults.
	p = paramsFor(t, "page=-1&limit=9999")
	require.Equal(t, 1, p.Page)
	require.Equal(t, 20, p.Limit)
}

func TestNewPaginationResponse(t *testing.T) {
	resp := NewPaginationResponse(25, PaginationParams{Page: 1, Limit: 20})
	require.EqualValues(t, 25, resp.Total)
	require.Equal(t, 2, resp.Pages)

	resp = NewPaginationResponse(40, PaginationParams{Page: 2, Limit: 20})
	require.Equal(t, 2, resp.Pages)

	resp = NewPaginationResponse(0, PaginationParams{Page: 1, Limit: 20})
	require.Equal(t, 0, resp.Pages)
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	require.Len(t, a, 48)
	require.NotEqual(t, a, b)
}
