package parser

import (
	"testing"
)

func FuzzExtractTypeScript(f *testing.F) {
	f.Add([]byte(`import React, { useState } from 'react';
export * from './a';
const { b } = require('./b');
export default function App() { return import('./lazy'); }`))
	f.Add([]byte("import x from `./tpl`;\nexport {"))

	loader, err := NewGrammarLoader()
	if err != nil {
		f.Fatal(err)
	}
	p := NewParser(loader, WithTolerateSyntaxErrors(true))

	f.Fuzz(func(t *testing.T, data []byte) {
		file, err := p.ParseSource("fuzz.tsx", data)
		if err != nil {
			return
		}
		defer file.Close()

		_ = ExtractImports(file)
		_ = ExtractExports(file)
	})
}
