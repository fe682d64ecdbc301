package types

import "errors"

var (
	ErrInvalidYearRange        = errors.New("start year must not be after end year")
	ErrNoRecords               = errors.New("no award records were parsed")
	ErrNoArchives              = errors.New("no award archives found in data directory")
	ErrHierarchyNotFound       = errors.New("research.json not found; run the aggregate stage first")
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
	ErrUnsupportedReportType   = errors.New("unsupported report type")
	ErrMissingDivisionURLs     = errors.New("division_urls.txt not found; run the mappings stage first")
)
