package filesystem

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
)

// UnknownVolume labels paths outside every configured volume.
const UnknownVolume = "unknown"

// VolumeResolver labels paths with the name of the configured directory that
// contains them. The deepest directory wins.
type VolumeResolver struct {
	volumes []volume
}

type volume struct {
	dir  string
	name string
}

// NewVolumeResolver takes volume names to directories, e.g.
//
//	NewVolumeResolver(map[string]string{"temp": os.TempDir(), "cache": cacheDir})
//
// Empty directories are ignored.
func NewVolumeResolver(dirs map[string]string) *VolumeResolver {
	vr := &VolumeResolver{}
	for name, dir := range dirs {
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		vr.volumes = append(vr.volumes, volume{dir: filepath.Clean(dir), name: name})
	}
	slices.SortFunc(vr.volumes, func(a, b volume) int {
		return cmp.Compare(len(b.dir), len(a.dir))
	})
	return vr
}

// Resolve returns the volume holding path, or UnknownVolume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return UnknownVolume
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return UnknownVolume
	}
	for _, v := range vr.volumes {
		if within(abs, v.dir) {
			return v.name
		}
	}
	return UnknownVolume
}

// within reports whether path is dir or below it. Both must be clean.
func within(path, dir string) bool {
	if dir == string(filepath.Separator) {
		return true
	}
	rest, ok := strings.CutPrefix(path, dir)
	return ok && (rest == "" || rest[0] == filepath.Separator)
}

var defaultResolver atomic.Pointer[VolumeResolver]

// SetDefaultVolumeResolver installs the resolver used when a RetryConfig
// carries none.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver.Store(vr)
}
