package transfer

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedJarStripsLeadingDot(t *testing.T) {
	d := NewHTTPDownloader(t.TempDir())
	d.seedJar([]*network.Cookie{
		{Name: "li_at", Value: "tok-1", Domain: ".console.example", Path: "/"},
		{Name: "sid", Value: "tok-2", Domain: "console.example", Path: "/"},
		{Name: "orphan", Value: "x", Domain: "", Path: "/"},
	})

	u, err := url.Parse("https://console.example/")
	require.NoError(t, err)
	got := d.client.Jar.Cookies(u)
	require.Len(t, got, 2)
	names := map[string]string{}
	for _, c := range got {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "tok-1", names["li_at"])
	assert.Equal(t, "tok-2", names["sid"])
}

func TestSaveBytesResolvesCollisions(t *testing.T) {
	dir := t.TempDir()
	d := NewHTTPDownloader(dir)

	first, err := d.SaveBytes("Jane_Doe.pdf", []byte("one"))
	require.NoError(t, err)
	second, err := d.SaveBytes("Jane_Doe.pdf", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, Subfolder, "Jane_Doe.pdf"), first)
	assert.Equal(t, filepath.Join(dir, Subfolder, "Jane_Doe-(1).pdf"), second)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}
