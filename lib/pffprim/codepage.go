// Copyright (C) 2024  pff-rec contributors
//
// SPDX-License-Identifier: GPL-2.0-or-later

package pffprim

// Codepage is one of the fifteen Windows ANSI codepages the core
// recognizes for narrow-string property decoding (§6
// "Access-codepage"). The core itself never decodes strings — this
// enum is just the configuration surface; decoding lives in the
// codepages package, which is a consumer of the core, not part of
// it.
type Codepage int

const (
	CodepageASCII             Codepage = 20127
	CodepageWindows874        Codepage = 874
	CodepageWindows932        Codepage = 932
	CodepageWindows936        Codepage = 936
	CodepageWindows949        Codepage = 949
	CodepageWindows950        Codepage = 950
	CodepageWindows1250       Codepage = 1250
	CodepageWindows1251       Codepage = 1251
	CodepageWindows1252       Codepage = 1252
	CodepageWindows1253       Codepage = 1253
	CodepageWindows1254       Codepage = 1254
	CodepageWindows1255       Codepage = 1255
	CodepageWindows1256       Codepage = 1256
	CodepageWindows1257       Codepage = 1257
	CodepageWindows1258       Codepage = 1258
)

var validCodepages = map[Codepage]bool{
	CodepageASCII: true, CodepageWindows874: true, CodepageWindows932: true,
	CodepageWindows936: true, CodepageWindows949: true, CodepageWindows950: true,
	CodepageWindows1250: true, CodepageWindows1251: true, CodepageWindows1252: true,
	CodepageWindows1253: true, CodepageWindows1254: true, CodepageWindows1255: true,
	CodepageWindows1256: true, CodepageWindows1257: true, CodepageWindows1258: true,
}

// Valid reports whether cp is one of the fifteen recognized codepages.
func (cp Codepage) Valid() bool { return validCodepages[cp] }

// DefaultCodepage matches libpff's historical default of
// windows-1252 (ASCII superset, Western European).
const DefaultCodepage = CodepageWindows1252
