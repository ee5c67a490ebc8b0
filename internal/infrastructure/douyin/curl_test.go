package douyin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"douyin_youtube_tool/internal/domain"
)

func TestParseCurl(t *testing.T) {
	command := `curl 'https://www.douyin.com/aweme/v1/web/aweme/post/?sec_user_id=ABC123' ` +
		`-H 'Authorization: Bearer xyz' -H 'Accept: application/json'`

	tmpl, err := ParseCurl(command)
	require.NoError(t, err)

	assert.Equal(t, "https://www.douyin.com/aweme/v1/web/aweme/post/?sec_user_id=ABC123", tmpl.URL)
	assert.Equal(t, "Bearer xyz", tmpl.Headers["Authorization"])
	assert.Equal(t, "application/json", tmpl.Headers["Accept"])
}

func TestParseCurlDuplicateHeaderLastWins(t *testing.T) {
	command := `curl 'https://www.douyin.com/aweme/v1/web/aweme/post/?sec_user_id=ABC' ` +
		`-H 'Accept: text/html' -H 'Accept: application/json'`

	tmpl, err := ParseCurl(command)
	require.NoError(t, err)

	assert.Equal(t, "application/json", tmpl.Headers["Accept"])
}

func TestParseCurlCookieFlagOverridesHeader(t *testing.T) {
	command := `curl 'https://www.douyin.com/aweme/v1/web/aweme/post/?sec_user_id=ABC' ` +
		`-H 'Cookie: a=1' -b 'session=real'`

	tmpl, err := ParseCurl(command)
	require.NoError(t, err)

	assert.Equal(t, "session=real", tmpl.Headers["Cookie"])
	assert.Equal(t, "session=real", tmpl.CookieHeader())
}

func TestParseCurlRecoversFromClutter(t *testing.T) {
	// line continuations, flags the parser does not know and stray quoting
	command := "curl 'https://www.douyin.com/aweme/v1/web/aweme/post/?sec_user_id=ABC' \\\n" +
		"  --compressed \\\n" +
		"  -H 'Referer: https://www.douyin.com/' \\\n" +
		"  --insecure -X GET"

	tmpl, err := ParseCurl(command)
	require.NoError(t, err)

	assert.Contains(t, tmpl.URL, "sec_user_id=ABC")
	assert.Equal(t, "https://www.douyin.com/", tmpl.Headers["Referer"])
}

func TestParseCurlUnquotedURL(t *testing.T) {
	tmpl, err := ParseCurl(`curl https://example.com/feed -H 'Accept: */*'`)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/feed", tmpl.URL)
}

func TestParseCurlEmptyCommand(t *testing.T) {
	_, err := ParseCurl("   ")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultValidation))
}

func TestParseCurlNoURL(t *testing.T) {
	_, err := ParseCurl(`curl -H 'Accept: */*'`)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.FaultValidation))
}
