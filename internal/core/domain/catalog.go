package domain

import (
	"strings"
)

// FileType is the declared content kind of a dataset's raw files.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeAudio FileType = "audio"
	FileTypeText  FileType = "text"
	FileTypeVideo FileType = "video"
)

func ParseFileType(s string) (FileType, error) {
	ft := FileType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fileTypeExtensions[ft]; !ok {
		return "", ErrInvalidFileType
	}
	return ft, nil
}

var fileTypeExtensions = map[FileType][]string{
	FileTypeImage: {".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic"},
	FileTypeAudio: {".mp3", ".wav", ".ogg"},
	FileTypeVideo: {".mp4", ".webm", ".ogg"},
	FileTypeText:  {".txt", ".csv", ".json", ".pdf", ".docx", ".xlsx", ".doc"},
}

// Extensions returns the allowed lower-case extensions (with the dot)
// for raw files of this type.
func (t FileType) Extensions() []string {
	exts := fileTypeExtensions[t]
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// Label is the capitalised form used by the upload form ("Image").
func (t FileType) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Domains is the fixed set of dataset/prompt domains.
var Domains = []string{
	"Health",
	"Education",
	"Automobile",
	"Finance",
	"Business",
	"Banking",
	"Retail",
	"Government",
	"Sports",
	"Social Media",
	"Entertainment",
	"Telecommunication",
	"Energy",
	"E-Commerce",
}

// Licenses is the fixed set of license strings a dataset may declare.
var Licenses = []string{
	"CC0 1.0 Universal (Public Domain Dedication)",
	"Creative Commons Attribution 4.0 International (CC BY 4.0)",
	"Creative Commons Attribution-ShareAlike 4.0 International (CC BY-SA 4.0)",
	"Creative Commons Attribution-NonCommercial 4.0 International (CC BY-NC 4.0)",
	"Creative Commons Attribution-NoDerivatives 4.0 International (CC BY-ND 4.0)",
	"Open Data Commons Public Domain Dedication and License (PDDL)",
	"Open Data Commons Attribution License (ODC-By)",
	"Open Data Commons Open Database License (ODbL)",
	"MIT License (for datasets with code)",
	"Apache License 2.0 (optional for datasets + software tools)",
	"Proprietary License (Custom Terms)",
	"Research-Only License (for datasets restricted to academic or research use)",
	"No License (All rights reserved)",
}

func IsKnownDomain(d string) bool {
	for _, v := range Domains {
		if v == d {
			return true
		}
	}
	return false
}

func IsKnownLicense(l string) bool {
	for _, v := range Licenses {
		if v == l {
			return true
		}
	}
	return false
}
