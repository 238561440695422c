package transport_test

import (
	"fmt"

	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/transport"
)

func ExampleCodec_Encode() {
	d := drawing.New()
	d.Set(0, 0, "#000000")

	c := transport.New(transport.WithCompressor(transport.NoopCompressor{}))
	token := c.Encode(d)
	fmt.Println(token)

	u, _ := transport.ShareURL("https://pixelshare.example/", token)
	fmt.Println(u)
	// Output:
	// c3wxNXwyMHwyMHx8MCwwOiMwMDAwMDA
	// https://pixelshare.example/?drawing=c3wxNXwyMHwyMHx8MCwwOiMwMDAwMDA
}

func ExampleDecode() {
	d := drawing.New()
	d.Pattern = drawing.PatternBricks
	d.Set(2, 3, "#ff0000")

	for _, token := range []string{transport.Encode(d), mustLegacy(d)} {
		got, format, err := transport.Decode(token)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Println(format, got.Pattern, got.Get(2, 3))
	}
	// Output:
	// compact bricks #ff0000
	// legacy bricks #ff0000
}

func mustLegacy(d *drawing.Document) string {
	token, err := transport.EncodeLegacy(d)
	if err != nil {
		panic(err)
	}
	return token
}
