package fixture

// Table names.
const (
	// FaultTable holds one row whose age makes 1000/age divide by zero.
	FaultTable = "table_causing_error"

	// ControlTable is unrelated to the fault and is read before and after it.
	ControlTable = "some_other_table"

	// VersionTable is where goose records applied migrations.
	VersionTable = "pgfault_schema_version"
)

// Person is a row of FaultTable.
type Person struct {
	Name string
	Age  int
}

// Product is a row of ControlTable.
type Product struct {
	Title  string
	Amount int
}

// People is the seed for FaultTable. Charlie's age of zero is the fault trigger.
var People = []Person{
	{Name: "Alice", Age: 25},
	{Name: "Bob", Age: 30},
	{Name: "Charlie", Age: 0},
}

// Products is the seed for ControlTable.
var Products = []Product{
	{Title: "Product A", Amount: 100},
	{Title: "Product B", Amount: 250},
	{Title: "Product C", Amount: 75},
	{Title: "Product D", Amount: 300},
	{Title: "Product E", Amount: 150},
}
