package migrations

func init() {
	Migrations.MustRegister(execFile("questions.up.sql"), dropTable("questions"))
}
