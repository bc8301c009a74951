// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import "time"

func timeFromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
