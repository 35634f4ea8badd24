package record

// Extract drains the splitter through the parser. Records and failures keep
// the order of their candidates.
func Extract(s Splitter, p *Parser) ([]TimerRecord, []Failure) {
	var records []TimerRecord
	var failures []Failure

	for s.Scan() {
		c := s.Candidate()
		rec, failure := p.Parse(c)
		if failure != nil {
			if raw, ok := s.(interface{ Entry() string }); ok {
				failure.Entry = raw.Entry()
			}
			failures = append(failures, *failure)
			continue
		}
		records = append(records, rec)
	}
	return records, failures
}
