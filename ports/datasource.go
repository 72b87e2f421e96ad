package ports

import (
	"adinsight/domain/adset"
)

// DataSource supplies the tabular ad dataset. Implementations own all file
// format, coercion and default-filling concerns; the core only sees a Table.
type DataSource interface {
	Load() (*adset.Table, error)
}
