package pool

// Category tags every pooled buffer with the role it was created for. Buffers are only reused
// within their own category.
type Category int

const (
	CategoryVertex Category = iota
	CategoryIndex
	CategoryUniform
	CategoryStorage
	CategoryStaging
	CategoryInstance
	CategoryCompute
)

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryVertex,
		CategoryIndex,
		CategoryUniform,
		CategoryStorage,
		CategoryStaging,
		CategoryInstance,
		CategoryCompute,
	}
}

// String returns the lowercase name of the category.
func (c Category) String() string {
	switch c {
	case CategoryVertex:
		return "vertex"
	case CategoryIndex:
		return "index"
	case CategoryUniform:
		return "uniform"
	case CategoryStorage:
		return "storage"
	case CategoryStaging:
		return "staging"
	case CategoryInstance:
		return "instance"
	case CategoryCompute:
		return "compute"
	}
	return "unknown"
}
