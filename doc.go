/*
Package gifpress reduces the byte size of an animated GIF to fit under a
caller specified budget while keeping as much visual quality as possible.

It works by repeatedly invoking an encoder with progressively more aggressive
quality, palette and scale settings and keeping the smallest result produced
so far. When the gifsicle binary is available on the system it is used for
the actual compression; otherwise a built-in palette quantizer serves as a
fallback through the same interface.

The package provides a command line interface, supporting various flags for
the different compression options. To check the supported commands type:

	$ gifpress --help

In case you wish to integrate the API in a self constructed environment here
is a simple example:

	package main

	import (
		"fmt"
		"github.com/gifpress/gifpress"
	)

	func main() {
		p := &gifpress.Processor{
			TargetSize:  1 << 20, // 1MB
			MaxAttempts: 10,
		}

		orig, final, err := p.Compress("in.gif", "out.gif")
		if err != nil {
			fmt.Printf("Error compressing the animation: %s", err.Error())
		}
		fmt.Printf("%d => %d bytes\n", orig, final)
	}
*/
package gifpress
