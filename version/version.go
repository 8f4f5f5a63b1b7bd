package version

import (
	"runtime/debug"
)

var (
	Version = "v0.1.0"
)

func init() {
	ver := ReadBuildVersion()
	if ver != "" {
		Version = ver
	}
}

func ReadBuildVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Path == "github.com/curtisnewbie/cpubridge" && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
		for _, dep := range buildInfo.Deps {
			if dep.Path == "github.com/curtisnewbie/cpubridge" {
				if dep.Version != "" {
					return dep.Version
				}
				break
			}
		}
	}
	return ""
}
