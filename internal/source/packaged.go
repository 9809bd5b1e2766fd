package source

import (
	"embed"
	"io/fs"
)

//go:embed data/*.yaml
var packagedData embed.FS

// PackagedName labels the embedded base layer.
const PackagedName = "packaged"

// Packaged returns the catalog shipped with the binary. It is normally the lowest-ranked layer.
func Packaged() Source {
	sub, err := fs.Sub(packagedData, "data")
	if err != nil {
		panic(err)
	}
	return FS(PackagedName, sub)
}
