// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/timelinedb/timeline/pkg/log"
)

// StoreConfig is the format of the (optional) configuration file. See
// Keys below for the defaults.
type StoreConfig struct {
	// Database driver: currently only "sqlite3" is supported.
	DBDriver string `json:"db-driver"`

	// Logging verbosity: debug, info, warn, err.
	LogLevel string `json:"loglevel"`
}

var Keys StoreConfig = StoreConfig{
	DBDriver: "sqlite3",
	LogLevel: "warn",
}

// Init loads configuration from path, overlaying it on top of the
// defaults above. A missing file is not an error: the defaults apply.
func Init(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		log.Warnf("config: failed to decode %s: %v", path, err)
		return err
	}

	return nil
}
