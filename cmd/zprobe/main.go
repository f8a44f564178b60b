// Command zprobe sends and classifies single-packet probes at a
// configurable rate, the way zmap's core sender/receiver pair does, over
// the probe modules registered under internal/probe.
package main

func main() {
	Execute()
}
