package profile

import (
	"fmt"
	"strings"
	"time"
)

// Language identifies a supported programming language.
type Language string

const (
	LangPython Language = "py"
	LangC      Language = "c"
	LangCpp    Language = "cpp"
	LangJava   Language = "java"
	LangJS     Language = "js"
)

// ParseLanguage normalizes a user-supplied language identifier.
// Unknown identifiers are rejected rather than passed through so a typo
// never reaches the toolchain layer.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "py", "python", "python3":
		return LangPython, nil
	case "c":
		return LangC, nil
	case "cpp", "c++", "cxx":
		return LangCpp, nil
	case "java":
		return LangJava, nil
	case "js", "javascript", "node":
		return LangJS, nil
	default:
		return "", fmt.Errorf("unsupported language: %q", s)
	}
}

// Spec describes how to compile and run a language.
// Command templates are shlex-split with these placeholders:
//
//	{tool}       resolved toolchain binary
//	{src}        absolute path to the source file
//	{bin}        absolute path to the output binary
//	{dir}        working directory
//	{extraFlags} optional extra compiler flags
type Spec struct {
	ID             Language
	SourceFile     string
	BinaryFile     string
	CompileEnabled bool
	CompileCmdTpl  string
	RunCmdTpl      string

	// Toolchain candidates probed in order. The first runnable wins.
	CompileCandidates []string
	RunCandidates     []string
	ProbeArg          string

	CompileTimeout time.Duration
	RunTimeout     time.Duration
}

var specs = map[Language]Spec{
	LangPython: {
		ID:            LangPython,
		SourceFile:    "main.py",
		RunCmdTpl:     "{tool} {src}",
		RunCandidates: []string{"/usr/local/bin/python3", "/usr/bin/python3", "python3", "python"},
		ProbeArg:      "--version",
		RunTimeout:    10 * time.Second,
	},
	LangC: {
		ID:                LangC,
		SourceFile:        "main.c",
		BinaryFile:        "main",
		CompileEnabled:    true,
		CompileCmdTpl:     "{tool} -std=c99 -O2 -Wall {extraFlags} -o {bin} {src}",
		RunCmdTpl:         "{bin}",
		CompileCandidates: []string{"/usr/bin/gcc", "gcc", "clang"},
		ProbeArg:          "--version",
		CompileTimeout:    15 * time.Second,
		RunTimeout:        5 * time.Second,
	},
	LangCpp: {
		ID:                LangCpp,
		SourceFile:        "main.cpp",
		BinaryFile:        "main",
		CompileEnabled:    true,
		CompileCmdTpl:     "{tool} -std=c++17 -O2 -Wall {extraFlags} -o {bin} {src}",
		RunCmdTpl:         "{bin}",
		CompileCandidates: []string{"/usr/bin/g++", "g++", "clang++"},
		ProbeArg:          "--version",
		CompileTimeout:    15 * time.Second,
		RunTimeout:        5 * time.Second,
	},
	LangJava: {
		ID:                LangJava,
		SourceFile:        "Main.java",
		BinaryFile:        "Main.class",
		CompileEnabled:    true,
		CompileCmdTpl:     "{tool} {extraFlags} -d {dir} {src}",
		RunCmdTpl:         "{tool} -cp {dir} Main",
		CompileCandidates: []string{"/usr/bin/javac", "javac"},
		RunCandidates:     []string{"/usr/bin/java", "java"},
		ProbeArg:          "-version",
		CompileTimeout:    20 * time.Second,
		RunTimeout:        15 * time.Second,
	},
	LangJS: {
		ID:            LangJS,
		SourceFile:    "main.js",
		RunCmdTpl:     "{tool} {src}",
		RunCandidates: []string{"/usr/local/bin/node", "/usr/bin/node", "node", "nodejs"},
		ProbeArg:      "--version",
		RunTimeout:    10 * time.Second,
	},
}

// SpecFor returns the immutable spec for a language.
func SpecFor(lang Language) (Spec, error) {
	s, ok := specs[lang]
	if !ok {
		return Spec{}, fmt.Errorf("no spec registered for language %q", lang)
	}
	return s, nil
}

// Languages returns all supported languages in a stable order.
func Languages() []Language {
	return []Language{LangPython, LangC, LangCpp, LangJava, LangJS}
}
