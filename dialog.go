/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package main

import (
	"github.com/sqweek/dialog"

	"github.com/coornio/cubechip-go/internal/applog"
)

// openROMDialog prompts for a program file to load, generalized from the
// teacher's open() (main.go) single ".c8"/".ch8" filter into the full set
// of extensions every registered core's registry.Extensions claims.
func openROMDialog(exts []string) (string, bool) {
	builder := dialog.File().Title("Open Program")
	if len(exts) > 0 {
		builder = builder.Filter("Program files", exts...)
	}
	builder = builder.Filter("All files", "*")

	path, err := builder.Load()
	if err != nil {
		if err != dialog.ErrCancelled {
			applog.Warnf("open dialog: %v", err)
		}
		return "", false
	}
	return path, true
}

// saveMemoryDialog prompts for a destination file to dump raw core memory
// to, ported from the teacher's save() (main.go).
func saveMemoryDialog(defaultName string) (string, bool) {
	path, err := dialog.File().Title("Save Memory Dump").Filter("Binary dump", "bin").SetStartFile(defaultName).Save()
	if err != nil {
		if err != dialog.ErrCancelled {
			applog.Warnf("save dialog: %v", err)
		}
		return "", false
	}
	return path, true
}
