// SPDX-License-Identifier: MPL-2.0

package handlers

// StubCommands are legacy command names the emulator accepts but does not
// emulate. Names that are also real commands or alias patterns are skipped
// at install time.
var StubCommands = []string{
	"abbreviations",
	"add_entry_names",
	"analyze_pc_dump",
	"analyze_system",
	"attach_default_output",
	"attach_port",
	"bind",
	"cancel_device_reservation",
	"cancel_print_requests",
	"change_priority",
	"check_posix",
	"compare_files",
	"compile",
	"copy_file",
	"create_data_object",
	"create_deleted_record_index",
	"create_index",
	"create_tape_volumes",
	"debug",
	"delete_index",
	"detach_default_output",
	"detach_port",
	"display_access",
	"display_access_list",
	"display_batch_status",
	"display_default_access",
	"display_default_access_list",
	"display_device_info",
	"display_file_status",
	"display_print_defaults",
	"display_print_status",
	"display_program_module",
	"display_queue",
	"display_system_usage",
	"display_tape_params",
	"dump_disk",
	"dump_record",
	"edit",
	"emacs",
	"format_disk",
	"give_access",
	"give_default_access",
	"link",
	"list_devices",
	"list_gateways",
	"list_modules",
	"list_port_attachments",
	"list_process_cmd_limits",
	"list_save_tape",
	"list_systems",
	"list_tape",
	"list_terminal_types",
	"login",
	"logout",
	"make_message_file",
	"monitor_terminal",
	"mount_tape",
	"print",
	"profile",
	"rebuild_index",
	"release_device",
	"remove_access",
	"remove_default_access",
	"reserve_device",
	"restore_object",
	"save_object",
	"set",
	"set_cpu_time_limit",
	"set_expiration_date",
	"set_file_allocation",
	"set_implicit_locking",
	"set_index_flags",
	"set_log_protected_file",
	"set_ready",
	"set_terminal_parameters",
	"show_tape_status",
	"sort",
	"start_logging",
	"start_process",
	"stop_logging",
	"stop_process",
	"update_default_print_params",
	"verify_posix_access",
	"verify_save",
	"who_locked",
}
