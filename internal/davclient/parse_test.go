package davclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const rootDetailsResponse = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:lp1="http://subversion.tigris.org/xmlns/dav/">
<D:response>
<D:href>/svn/repo/trunk/</D:href>
<D:propstat>
<D:prop>
<lp1:version-name>42</lp1:version-name>
<lp1:sha1-checksum/>
<lp1:baseline-relative-path>/trunk</lp1:baseline-relative-path>
</D:prop>
<D:status>HTTP/1.1 200 OK</D:status>
</D:propstat>
</D:response>
</D:multistatus>
`

const dirListResponse = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:lp1="http://subversion.tigris.org/xmlns/dav/">
<D:response>
<D:href>/svn/repo/trunk/sub/</D:href>
<D:propstat>
<D:prop>
<lp1:version-name>10</lp1:version-name>
<lp1:sha1-checksum/>
<lp1:baseline-relative-path>/trunk/sub</lp1:baseline-relative-path>
</D:prop>
<D:status>HTTP/1.1 200 OK</D:status>
</D:propstat>
</D:response>
<D:response>
<D:href>/svn/repo/trunk/sub/a.txt</D:href>
<D:propstat>
<D:prop>
<lp1:version-name>9</lp1:version-name>
<lp1:sha1-checksum>abc123</lp1:sha1-checksum>
<lp1:baseline-relative-path>/trunk/sub/a.txt</lp1:baseline-relative-path>
</D:prop>
<D:status>HTTP/1.1 200 OK</D:status>
</D:propstat>
</D:response>
<D:response>
<D:href>/svn/repo/trunk/sub/b%26c.txt</D:href>
<D:propstat>
<D:prop>
<lp1:version-name>8</lp1:version-name>
<lp1:sha1-checksum>def456</lp1:sha1-checksum>
<lp1:baseline-relative-path>/trunk/sub/b&amp;c.txt</lp1:baseline-relative-path>
</D:prop>
<D:status>HTTP/1.1 200 OK</D:status>
</D:propstat>
</D:response>
</D:multistatus>
`

func TestTextBetweenAngles(t *testing.T) {
	assert.Equal(t, "42", textBetweenAngles("<lp1:version-name>42</lp1:version-name>"))
	assert.Equal(t, "", textBetweenAngles("<lp1:sha1-checksum/>"))
}

func TestParsePropfindEntriesRoot(t *testing.T) {
	entries := parsePropfindEntries(rootDetailsResponse)
	assert.Len(t, entries, 1)
	assert.Equal(t, int64(42), entries[0].Revision)
	assert.Equal(t, "", entries[0].SHA1)
	assert.Equal(t, "/trunk", entries[0].BaselineRelPath)
}

func TestParsePropfindEntriesDirList(t *testing.T) {
	entries := parsePropfindEntries(dirListResponse)
	assert.Len(t, entries, 3)
	assert.Equal(t, int64(10), entries[0].Revision)
	assert.Equal(t, "", entries[0].SHA1)
	assert.Equal(t, int64(9), entries[1].Revision)
	assert.Equal(t, "abc123", entries[1].SHA1)
	assert.Equal(t, "/trunk/sub/b&amp;c.txt", entries[2].BaselineRelPath)
}

func TestRelativeToSyncRoot(t *testing.T) {
	assert.Equal(t, "sub/a.txt", relativeToSyncRoot("/trunk/sub/a.txt", "/trunk"))
	assert.Equal(t, "sub", relativeToSyncRoot("/trunk/sub", "/trunk"))
	assert.Equal(t, "", relativeToSyncRoot("/other/a.txt", "/trunk"))
	assert.Equal(t, "sub/b&c.txt", relativeToSyncRoot("/trunk/sub/b&amp;c.txt", "/trunk"))
}

func TestActivityCollectionSetPrefix(t *testing.T) {
	body := "<D:activity-collection-set><D:href>/svn/repo/!svn/act/</D:href></D:activity-collection-set>"
	assert.Equal(t, "/svn/repo/", activityCollectionSetPrefix(body))
}
