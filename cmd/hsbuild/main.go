package main

import "github.com/goplus/hsbuild/cmd/hsbuild/internal"

func main() {
	internal.Execute()
}
