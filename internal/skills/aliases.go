package skills

// aliasTable maps normalized alias spellings to their canonical skill name.
// Keys are already in Normalize form. Values must be fixed points of
// Canonicalize: lower case, no stripped punctuation, no trailing generic word,
// and not themselves a key.
var aliasTable = map[string]string{
	// languages
	"js":          "javascript",
	"ecmascript":  "javascript",
	"es6":         "javascript",
	"ts":          "typescript",
	"py":          "python",
	"python3":     "python",
	"rb":          "ruby",
	"cs":          "c#",
	"csharp":      "c#",
	"c sharp":     "c#",
	"cpp":         "c++",
	"c plus plus": "c++",
	"golang":      "go",
	"kt":          "kotlin",
	"objc":        "objective c",
	"r lang":      "r",

	// frameworks and runtimes
	"node":        "nodejs",
	"node js":     "nodejs",
	"react js":    "react",
	"reactjs":     "react",
	"vue js":      "vue",
	"vuejs":       "vue",
	"angular js":  "angularjs",
	"next js":     "nextjs",
	"dotnet":      "net",
	"net core":    "net",
	"asp net":     "aspnet",
	"sklearn":     "scikit learn",
	"spring boot": "springboot",

	// data stores
	"postgres":     "postgresql",
	"psql":         "postgresql",
	"pg":           "postgresql",
	"mssql":        "sql server",
	"ms sql":       "sql server",
	"mongo":        "mongodb",
	"es":           "elasticsearch",
	"db":           "database",
	"dbms":         "database",
	"rdbms":        "relational databases",
	"nosql db":     "nosql",
	"redis db":     "redis",
	"mysql db":     "mysql",
	"sqlite3":      "sqlite",
	"bq":           "bigquery",
	"big query":    "bigquery",
	"dynamo":       "dynamodb",
	"dynamo db":    "dynamodb",
	"snowflake db": "snowflake",

	// infrastructure
	"k8s":                    "kubernetes",
	"kube":                   "kubernetes",
	"amazon web services":    "aws",
	"gcp":                    "google cloud",
	"google cloud platform":  "google cloud",
	"ms azure":               "azure",
	"microsoft azure":        "azure",
	"ci cd":                  "cicd",
	"continuous integration": "cicd",
	"tf":                     "terraform",
	"gh actions":             "github actions",
	"docker compose":         "docker",
	"infrastructure as code": "iac",

	// disciplines
	"ml":  "machine learning",
	"ai":  "artificial intelligence",
	"nlp": "natural language processing",
	"cv":  "computer vision",
	"dl":  "deep learning",
	"ui":  "user interface",
	"ux":  "user experience",
	"oop": "object oriented design",
	"qa":  "quality assurance",
	"bi":  "business intelligence",
	"pm":  "project management",

	// office tools
	"ms excel":        "excel",
	"microsoft excel": "excel",
	"ms word":         "word",
	"microsoft word":  "word",
	"ms office":       "microsoft office",
	"powerbi":         "power bi",
	"ms power bi":     "power bi",

	// apis
	"restful":     "rest api",
	"rest":        "rest api",
	"restful api": "rest api",
	"rest apis":   "rest api",
}

// genericSuffixes are trailing words that add nothing to a skill name
// ("python programming", "java language", "react framework").
var genericSuffixes = map[string]bool{
	"programming": true,
	"language":    true,
	"languages":   true,
	"development": true,
	"software":    true,
	"framework":   true,
	"library":     true,
}
