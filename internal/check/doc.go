// Package check defines the audit checks and the registry that holds them.
//
// # Checks
//
// A Check computes one or more labeled results for a target and belongs to
// exactly one report category. Checks are independent: none reads another
// check's output, so the checks of a category can run concurrently. They
// share only the per-run page cache passed in Input, which lets the on-page
// checks parse the target page once.
//
// # Categories
//
//   - Technical: indexed pages, sitemap, robots.txt, HTTPS, broken links
//   - On-Page: title and meta description, headings, image alt text,
//     keyword density, word count
//   - Off-Page: backlinks, domain authority
//   - UX: PageSpeed score and largest contentful paint, mobile friendliness
//
// Only "Indexed Pages" and "Speed Score" are persisted to the exported
// audit record (keys "indexed" and "speed"); every other result is display
// only.
package check
