// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the package logger used for diagnostics.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		log = l
	}
}
