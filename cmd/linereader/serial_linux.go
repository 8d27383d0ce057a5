package main

import (
	"io"

	linereader "github.com/luhtfiimanal/go-linereader"
)

func openSerial(c Config) (linereader.Source, io.Closer, error) {
	src, err := linereader.OpenSerial(linereader.SerialConfig{
		Device:    c.Device,
		BaudRate:  c.Baud,
		ChunkSize: c.ChunkSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return src, src, nil
}
