package main

import (
	"flag"
	"fmt"

	"squiggle/alphabet"
	"squiggle/pore"
	"squiggle/sigfile"
)

var in = flag.String("in", "", "plain-text model file")
var sig = flag.String("sig", "", "signal container file")
var strand = flag.Int("strand", pore.StrandTemplate, "strand to load from the container")
var prefix = flag.String("prefix", "", "known installation prefix to strip from container model names")
var update = flag.String("update", "", "model file to merge into the loaded model")
var name = flag.String("name", "", "model name override for the output")
var out = flag.String("out", "", "output model file")

func main() {
	var m *pore.Model
	var err error

	flag.Parse()

	switch {
	case *in != "" && *sig != "":
		fmt.Printf("Error: -in and -sig are mutually exclusive\n")
		return

	case *in != "":
		m, err = pore.FromFile(*in, alphabet.DNA)

	case *sig != "":
		var f *sigfile.File

		f, err = sigfile.Open(*sig)
		if err == nil {
			m, err = pore.FromContainer(f, *strand, alphabet.DNA, *prefix)
		}

	default:
		fmt.Printf("Error: either -in or -sig is required\n")
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if *update != "" {
		other, err := pore.FromFile(*update, alphabet.DNA)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		fmt.Printf("model %s: mean level %.2f, replacement %s: mean level %.2f, shift offset %.2f\n",
			m.Name(), pore.MeanLevel(m.States()), other.Name(),
			pore.MeanLevel(other.States()), other.ShiftOffset())

		if err = m.UpdateFrom(other); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}

	if *out == "" {
		fmt.Printf("model %s: k %d, %d k-mers, mean level %.2f\n",
			m.Name(), m.K(), len(m.States()), pore.MeanLevel(m.States()))
		return
	}

	if err = m.Write(*out, alphabet.DNA, *name); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}
