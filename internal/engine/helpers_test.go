package engine

import "github.com/subsyncit/subsyncit/internal/davclient"

func davDetails(rev int64, sha1, baselineRelPath string) davclient.Details {
	return davclient.Details{Revision: rev, SHA1: sha1, BaselineRelPath: baselineRelPath}
}
