package transmute

// ParseTSV parses tab-separated text. It is [ParseCSV] with the delimiter
// forced to tab; every other option applies unchanged.
func ParseTSV(input string, opts *CSVOptions) (*Result, error) {
	o := DefaultCSVOptions()
	if opts != nil {
		clone := *opts
		o = &clone
	}
	o.Delimiter = '\t'
	return ParseCSV(input, o)
}

// EncodeTSV renders a tabular tree as tab-separated text. It is [EncodeCSV]
// with the delimiter forced to tab.
func EncodeTSV(v Value, opts *CSVEncodeOptions) (*Result, error) {
	o := DefaultCSVEncodeOptions()
	if opts != nil {
		clone := *opts
		o = &clone
	}
	o.Delimiter = '\t'
	return EncodeCSV(v, o)
}
