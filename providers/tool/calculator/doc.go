// Package calculator provides the calculator tool: it turns a possibly
// natural-language arithmetic phrase into a number without executing
// arbitrary code.
//
// Evaluation is a three-step pipeline:
//
//  1. [Rewrite] maps phrases such as "the square root of 16" or "50% of 200"
//     onto arithmetic using an ordered rule list where the first match wins.
//  2. A [Chain] of evaluators computes the value. [StrictEvaluator] walks a
//     closed grammar of numbers, unary minus, + - * / ** and parentheses.
//     When the input uses syntax outside that grammar, such as the function
//     calls produced by step 1, [SandboxEvaluator] evaluates it against a
//     fixed allow-list of math functions and constants.
//  3. [Format] renders the value, dropping trailing zeros.
//
// [New] wraps the pipeline as a tool.Tool named "calculator".
package calculator
