/*
Package suite loads and runs suite files: lists of program/tests cases with
expectations on the result.

TOML suites use [[case]] tables, YAML suites a cases list:

	name = "math"

	[[case]]
	name = "add"
	code_file = "add.js"
	tests = "test('add', () => assertEquals(add(1, 2), 3))"
	[case.expect]
	success = true
	passed = 1

Relative code_file and tests_file paths resolve against the suite file.
*/
package suite
