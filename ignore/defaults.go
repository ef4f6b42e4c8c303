package ignore

// DefaultIgnorePatterns are basenames and globs that are always skipped.
// None of them can carry an allow-listed extension, so they never hide a
// file the scan would otherwise accept. Hidden files and Office lock files
// ("~$report.docx") are excluded only through .docshelfignore or -exclude.
var DefaultIgnorePatterns = []string{
	// LibreOffice lock files (".~lock.report.odt#")
	".~lock.*#",

	// Editor and download leftovers
	"*~",
	"*.tmp",
	"*.part",
	"*.crdownload",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}
