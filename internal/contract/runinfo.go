package contract

import (
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/gwdetchar/segcoalesce/schema"
)

// CurrentRunInfo describes this process for registration in the process table.
func CurrentRunInfo(domain string, creatorDB int) schema.RunInfo {
	node, err := os.Hostname()
	if err != nil {
		node = "unknown"
	}
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	return schema.RunInfo{
		Program:   filepath.Base(os.Args[0]),
		Node:      node,
		Username:  username,
		UnixPID:   os.Getpid(),
		StartTime: GPSFromTime(time.Now()),
		Domain:    domain,
		CreatorDB: creatorDB,
	}
}
