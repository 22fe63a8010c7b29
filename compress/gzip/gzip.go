// Package gzip implements gzip compression.
package gzip

import (
	"compress/gzip"
	"io"
	"sync"
)

// Codec is the implementation of a compress.Codec which supports creating
// readers and writers for kafka messages compressed with gzip.
type Codec struct {
	// The compression level configured on writers created by the codec.
	//
	// Default to gzip.DefaultCompression.
	Level int
}

// Code implements the compress.Codec interface.
func (c *Codec) Code() int8 { return 1 }

// Name implements the compress.Codec interface.
func (c *Codec) Name() string { return "gzip" }

// NewReader implements the compress.Codec interface.
func (c *Codec) NewReader(r io.Reader) io.ReadCloser {
	p := new(reader)
	if cached := readerPool.Get(); cached != nil {
		p.reader = cached.(*gzip.Reader)
		if err := p.reader.Reset(r); err != nil {
			p.err = err
		}
	} else {
		z, err := gzip.NewReader(r)
		if err != nil {
			p.err = err
		} else {
			p.reader = z
		}
	}
	return p
}

// NewWriter implements the compress.Codec interface.
func (c *Codec) NewWriter(w io.Writer) io.WriteCloser {
	p := new(writer)
	if cached := writerPool.Get(); cached != nil {
		p.writer = cached.(*gzip.Writer)
		p.writer.Reset(w)
	} else {
		z, err := gzip.NewWriterLevel(w, c.level())
		if err != nil {
			z = gzip.NewWriter(w)
		}
		p.writer = z
	}
	return p
}

func (c *Codec) level() int {
	if c.Level != 0 {
		return c.Level
	}
	return gzip.DefaultCompression
}

type reader struct {
	reader *gzip.Reader
	err    error
}

func (r *reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.reader.Read(p)
}

func (r *reader) Close() (err error) {
	if r.reader != nil {
		err = r.reader.Close()
		readerPool.Put(r.reader)
		r.reader = nil
	}
	return
}

type writer struct {
	writer *gzip.Writer
}

func (w *writer) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

func (w *writer) Close() (err error) {
	if w.writer != nil {
		err = w.writer.Close()
		writerPool.Put(w.writer)
		w.writer = nil
	}
	return
}

var readerPool sync.Pool // *gzip.Reader

var writerPool sync.Pool // *gzip.Writer
