package sandbox

import "regexp"

// guardName is the parameter the instrumented source calls into.
const guardName = "__checkTimeout"

const guardCall = "\n" + guardName + "();"

// loopHeader matches the opening brace of while, for, for-of, for-in and do
// loops. Headers may contain one level of nested parentheses.
var loopHeader = regexp.MustCompile(`\b(?:(?:while|for)\s*\((?:[^()]|\([^()]*\))*\)|do)\s*\{`)

// Instrument inserts a guard call as the first statement of every loop body
// it recognises. It matches text, it does not parse: loop syntax inside string
// literals or comments is rewritten too, and brace-less bodies are left alone.
//
// Stack overflow is a related engine limit: goja raises it past any
// try/catch, so a program that overflows at top level fails the run even when
// it tries to catch the error. Inside test() it only fails that test.
func Instrument(src string) string {
	return loopHeader.ReplaceAllString(src, "${0}"+guardCall)
}
