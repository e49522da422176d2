package config

// Model is the decoded configuration. Nil fields were not set in the file.
type Model struct {
	Listen         *string
	MaxQueryLength *int
	HTTPPort       *int
	StaticDir      *string
	LogLevel       *string
	LogFormat      *string
	Lines          []Line
}

// Line names a line and the file describing it.
type Line struct {
	Name string
	File string
}

// fileRoot is used to decode all top-level blocks of a file. Unknown blocks
// and attributes are rejected by the decoder.
type fileRoot struct {
	Server *serverBlock `hcl:"server,block"`
	HTTP   *httpBlock   `hcl:"http,block"`
	Log    *logBlock    `hcl:"log,block"`
	Lines  []*lineBlock `hcl:"line,block"`
}

type serverBlock struct {
	Listen         *string `hcl:"listen,optional"`
	MaxQueryLength *int    `hcl:"max_query_length,optional"`
}

type httpBlock struct {
	Port      *int    `hcl:"port,optional"`
	StaticDir *string `hcl:"static_dir,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type lineBlock struct {
	Name string `hcl:"name,label"`
	File string `hcl:"file"`
}
