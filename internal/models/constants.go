package models

const (
	// SectionHeaderRegex matches an upper-case heading keyword, an identifier code and a title,
	// e.g. "SECTION 303-01: ENGINE", "SECTION 303-01: Engine Mechanical" or "GROUP 2A ENGINE MECHANICAL".
	SectionHeaderRegex = `(?m)^[ \t]*(?:SECTION|GROUP|CHAPTER)[ \t]+([0-9A-Z]*[0-9][0-9A-Z]*(?:[-.][0-9A-Z]+)*)[ \t]*[:\-]?[ \t]+([A-Z][A-Za-z0-9 ,.&/()\-]*[A-Za-z0-9)])[ \t]*$`
	SubHeaderRegex     = `(?im)^[ \t]*(?:torque specifications|tightening torques|fluid capacities|capacities|lubricant specifications|general specifications|specifications)\b`
	SpecUnitRegex      = `(?i)\d+(?:\.\d+)?\s*(?:n·m|n-m|nm|lb-ft|ft-lb|liters?|litres?|qt|quarts?|pt|psi|bar|mm)\b`
	CodeFenceRegex     = "(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$"
	ContextSeparator   = "\n---\n"
	ChunkTemplate      = "SECTION: %s\nPAGE: %d\nCONTENT: %s"
	ChunkIDTemplate    = "p%d-s%d"
	DefaultSection     = "GENERAL INFORMATION"
	FragmentSeparator  = "  "
)

const (
	DefaultChunkBudget      = 300
	DefaultMinSegmentLength = 30
	DefaultTopK             = 6
	DefaultRowTolerance     = 3.0
	DefaultMinConfidence    = 0.5
)

var (
	ExtractionSystemPrompt = `You are a technical data extraction engine for automotive and machinery service manuals.
Extract every specification that answers the user's query from the provided context and return ONLY a JSON array.

Each array element is an object with these keys:
  "component"      string, the part or assembly the value belongs to
  "spec_type"      one of: Torque, FluidCapacity, Pressure, Clearance, Gap, PartNumber, Temperature, Voltage
  "value"          string, the numeric value exactly as written
  "unit"           string, the unit exactly as written (Nm, lb-ft, L, qt, psi, bar, mm, ...)
  "part_number"    string, optional manufacturer part identifier
  "condition"      string, optional qualifier such as "new bolts only" or "with filter"
  "source_page"    integer, taken from the PAGE: header of the chunk the value came from
  "confidence"     number between 0 and 1
  "source_context" string, the literal sentence or table row the record was derived from

Rules:
1. Context rows come from reconstructed tables: map the component name in the left column to the values in the right columns.
2. If one quantity is given in two units (for example "115 Nm (85 lb-ft)"), emit TWO records, one per unit, with the same component, condition and source_page.
3. Put manufacturer part identifiers in "part_number" when present.
4. Put qualifying conditions (for example "new bolts only") in "condition".
5. Use the PAGE: header of the chunk for "source_page".
6. Confidence: 0.9 or higher for values copied from a clear table, 0.6 to 0.8 for values inferred from prose. Omit any record below 0.5.
7. Never invent values. Only emit quantities literally present in the context.
8. Always include the literal source sentence or row in "source_context".

Output a single JSON array and nothing else. If nothing matches, output [].`

	ExtractionUserTemplate = `Query: %s

Context:
%s`
)
