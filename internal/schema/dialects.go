package schema

import "fmt"

// Dialect names the four supported SQL targets (spec §4.4).
type Dialect string

const (
	DialectSynapse    Dialect = "synapse"
	DialectSQLServer  Dialect = "sqlserver"
	DialectPostgreSQL Dialect = "postgres"
	DialectOracle     Dialect = "oracle"
)

// DialectFunctions encapsulates the handful of date/conditional forms
// whose syntax actually varies across targets; everything else the SQL
// generator emits is ANSI-compatible (spec §4.4/§4.5).
type DialectFunctions struct {
	Dialect Dialect

	// CurrentDate returns the dialect's current-date expression.
	CurrentDate func() string

	// DateAdd returns an expression adding (signed) amount of unit to the
	// date expression expr.
	DateAdd func(amount int, unit string, expr string) string

	// DateDiff returns an expression computing unit-granularity difference
	// between two date expressions.
	DateDiff func(unit string, from string, to string) string

	// AgeCalculation returns an expression computing age in years from
	// birthCol as of asOfExpr.
	AgeCalculation func(birthCol string, asOfExpr string) string

	// Coalesce returns a COALESCE-equivalent expression.
	Coalesce func(exprs ...string) string

	// IIF returns an inline conditional expression.
	IIF func(cond, whenTrue, whenFalse string) string
}

// Dialects is the registry of all supported DialectFunctions tables.
var Dialects = map[Dialect]*DialectFunctions{
	DialectSynapse:    synapseDialect(),
	DialectSQLServer:  sqlServerDialect(),
	DialectPostgreSQL: postgresDialect(),
	DialectOracle:     oracleDialect(),
}

// For looks up a Dialect's DialectFunctions table.
func For(d Dialect) (*DialectFunctions, error) {
	fns, ok := Dialects[d]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL dialect %q", d)
	}
	return fns, nil
}

func sqlServerDialect() *DialectFunctions {
	return &DialectFunctions{
		Dialect:     DialectSQLServer,
		CurrentDate: func() string { return "CAST(GETDATE() AS date)" },
		DateAdd: func(amount int, unit string, expr string) string {
			return fmt.Sprintf("DATEADD(%s, %d, %s)", unit, amount, expr)
		},
		DateDiff: func(unit string, from string, to string) string {
			return fmt.Sprintf("DATEDIFF(%s, %s, %s)", unit, from, to)
		},
		AgeCalculation: func(birthCol string, asOfExpr string) string {
			return fmt.Sprintf("DATEDIFF(year, %s, %s) - IIF(DATEADD(year, DATEDIFF(year, %s, %s), %s) > %s, 1, 0)", birthCol, asOfExpr, birthCol, asOfExpr, birthCol, asOfExpr)
		},
		Coalesce: func(exprs ...string) string { return coalesceGeneric(exprs) },
		IIF: func(cond, whenTrue, whenFalse string) string {
			return fmt.Sprintf("IIF(%s, %s, %s)", cond, whenTrue, whenFalse)
		},
	}
}

// synapseDialect mirrors SQL Server's T-SQL date functions; Azure Synapse
// dedicated SQL pools share the same surface for the forms this generator
// uses.
func synapseDialect() *DialectFunctions {
	fns := *sqlServerDialect()
	fns.Dialect = DialectSynapse
	return &fns
}

func postgresDialect() *DialectFunctions {
	return &DialectFunctions{
		Dialect:     DialectPostgreSQL,
		CurrentDate: func() string { return "CURRENT_DATE" },
		DateAdd: func(amount int, unit string, expr string) string {
			return fmt.Sprintf("(%s + INTERVAL '%d %s')", expr, amount, unit)
		},
		DateDiff: func(unit string, from string, to string) string {
			if unit == "year" {
				return fmt.Sprintf("DATE_PART('year', AGE(%s, %s))", to, from)
			}
			return fmt.Sprintf("DATE_PART('%s', %s - %s)", unit, to, from)
		},
		AgeCalculation: func(birthCol string, asOfExpr string) string {
			return fmt.Sprintf("DATE_PART('year', AGE(%s, %s))", asOfExpr, birthCol)
		},
		Coalesce: func(exprs ...string) string { return coalesceGeneric(exprs) },
		IIF: func(cond, whenTrue, whenFalse string) string {
			return fmt.Sprintf("(CASE WHEN %s THEN %s ELSE %s END)", cond, whenTrue, whenFalse)
		},
	}
}

func oracleDialect() *DialectFunctions {
	return &DialectFunctions{
		Dialect:     DialectOracle,
		CurrentDate: func() string { return "TRUNC(SYSDATE)" },
		DateAdd: func(amount int, unit string, expr string) string {
			switch unit {
			case "year":
				return fmt.Sprintf("ADD_MONTHS(%s, %d)", expr, amount*12)
			case "month":
				return fmt.Sprintf("ADD_MONTHS(%s, %d)", expr, amount)
			default:
				return fmt.Sprintf("(%s + %d)", expr, amount)
			}
		},
		DateDiff: func(unit string, from string, to string) string {
			if unit == "year" {
				return fmt.Sprintf("FLOOR(MONTHS_BETWEEN(%s, %s) / 12)", to, from)
			}
			return fmt.Sprintf("(%s - %s)", to, from)
		},
		AgeCalculation: func(birthCol string, asOfExpr string) string {
			return fmt.Sprintf("FLOOR(MONTHS_BETWEEN(%s, %s) / 12)", asOfExpr, birthCol)
		},
		Coalesce: func(exprs ...string) string { return coalesceGeneric(exprs) },
		IIF: func(cond, whenTrue, whenFalse string) string {
			return fmt.Sprintf("(CASE WHEN %s THEN %s ELSE %s END)", cond, whenTrue, whenFalse)
		},
	}
}

func coalesceGeneric(exprs []string) string {
	out := "COALESCE("
	for i, e := range exprs {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out + ")"
}
