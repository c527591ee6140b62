package binary

import (
	"fmt"
	"strings"
)

// ResolveArch maps architecture aliases to the names used in release paths.
// Unknown values pass through unchanged.
func ResolveArch(arch string) string {
	switch arch {
	case "ia32":
		return "i386"
	case "x64":
		return "x86_64"
	default:
		return arch
	}
}

// ResolvePlatform maps a platform identifier to its capitalized release name.
func ResolvePlatform(platform string) string {
	if platform == "" {
		return ""
	}
	return strings.ToUpper(platform[:1]) + strings.ToLower(platform[1:])
}

// constructDownloadInfo expands the target's templates for a platform and arch.
// Pattern: {url template} with {name}, {version}, {platform}, {arch}, {filename}
func constructDownloadInfo(target InstallTarget, platform, arch string) (*DownloadInfo, error) {
	if target.Name == "" || target.Version == "" {
		return nil, fmt.Errorf("install target requires a name and version")
	}
	if target.URLTemplate == "" {
		return nil, fmt.Errorf("install target %s has no URL template", target.Name)
	}

	info := &DownloadInfo{
		Name:     target.Name,
		Version:  target.Version,
		Platform: ResolvePlatform(platform),
		Arch:     ResolveArch(arch),
	}

	info.Filename = expand(target.FilenameTemplate, map[string]string{
		"name":     info.Name,
		"version":  info.Version,
		"platform": info.Platform,
		"arch":     info.Arch,
	})

	info.URL = expand(target.URLTemplate, map[string]string{
		"name":     info.Name,
		"version":  info.Version,
		"platform": info.Platform,
		"arch":     info.Arch,
		"filename": info.Filename,
	})

	if info.Filename == "" {
		info.Filename = info.URL[strings.LastIndex(info.URL, "/")+1:]
	}
	if strings.ContainsAny(info.Filename, `/\`) || info.Filename == "" || info.Filename == ".." {
		return nil, fmt.Errorf("invalid archive filename %q", info.Filename)
	}

	return info, nil
}

// expand substitutes {key} placeholders.
func expand(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
