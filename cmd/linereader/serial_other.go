//go:build !linux

package main

import (
	"errors"
	"io"

	linereader "github.com/luhtfiimanal/go-linereader"
)

func openSerial(c Config) (linereader.Source, io.Closer, error) {
	return nil, nil, errors.New("serial devices are only supported on linux")
}
