package insights

import (
	"fmt"

	"github.com/dataplane-labs/quality-sync/internal/models"
)

// FixScript renders a SQL remediation template for one issue on one
// column. The text is static guidance shown to the user, never executed
// by this client.
func FixScript(qualifiedTable, column string, issueType models.IssueType) string {
	switch issueType {
	case models.IssueNullValues:
		return fmt.Sprintf(`-- Backfill NULL values in %[1]s.%[2]s
UPDATE %[1]s
SET %[2]s = '<default value>'
WHERE %[2]s IS NULL;

-- Then forbid new NULLs
ALTER TABLE %[1]s
ALTER COLUMN %[2]s SET NOT NULL;
`, qualifiedTable, column)

	case models.IssueDuplicates:
		return fmt.Sprintf(`-- Remove duplicate values of %[1]s.%[2]s, keeping the first row
DELETE FROM %[1]s a
USING %[1]s b
WHERE a.ctid > b.ctid
  AND a.%[2]s = b.%[2]s;

-- Then enforce uniqueness
ALTER TABLE %[1]s
ADD CONSTRAINT %[2]s_unique UNIQUE (%[2]s);
`, qualifiedTable, column)

	case models.IssueInvalidFormat:
		return fmt.Sprintf(`-- Inspect rows of %[1]s.%[2]s that fail the expected format
SELECT *
FROM %[1]s
WHERE %[2]s !~ '<expected pattern>';

-- Normalize or correct the offending rows
UPDATE %[1]s
SET %[2]s = '<corrected value>'
WHERE %[2]s !~ '<expected pattern>';
`, qualifiedTable, column)

	case models.IssuePIIUnencrypted:
		return fmt.Sprintf(`-- Encrypt PII column %[1]s.%[2]s in place (requires pgcrypto)
CREATE EXTENSION IF NOT EXISTS pgcrypto;

UPDATE %[1]s
SET %[2]s = pgp_sym_encrypt(%[2]s, '<encryption key>')
WHERE %[2]s IS NOT NULL;
`, qualifiedTable, column)

	case models.IssueOutliers:
		return fmt.Sprintf(`-- Flag outlier values of %[1]s.%[2]s beyond 3 standard deviations
SELECT *
FROM %[1]s
WHERE abs(%[2]s - (SELECT avg(%[2]s) FROM %[1]s))
    > 3 * (SELECT stddev(%[2]s) FROM %[1]s);
`, qualifiedTable, column)

	default:
		return fmt.Sprintf(`-- No automated fix template for this issue on %s.%s
-- Review the profiling report and remediate manually.
`, qualifiedTable, column)
	}
}
