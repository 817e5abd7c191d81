// Package webfetch provides the web_fetch tool, which downloads a page over
// HTTP or HTTPS and converts its HTML to Markdown.
//
// Partial URLs such as "example.com" are normalised to https, redirects are
// followed up to a limit, the body size is capped and the request honours
// context cancellation. Use [New] to build the tool and [Fetcher.Fetch] to
// call the logic directly.
package webfetch
